// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package model holds the format-agnostic representation of a pipeline
// definition: the step and variable blocks decoded from the user's .hcl
// files, with argument values kept as unevaluated expressions.
//
// Argument expressions are deliberately not evaluated at load time. A step's
// arguments may reference the outputs of other steps (for example the
// extension build step consuming the version read by the manifest step), so
// evaluation has to wait until the executor knows those outputs. The model
// captures the user's intent as expressions and the dag package resolves
// them into concrete values.
package model
