package app

import (
	"github.com/specialistvlad/addonforge/internal/registry"
	artifactmod "github.com/specialistvlad/addonforge/modules/artifact"
	"github.com/specialistvlad/addonforge/modules/command"
	"github.com/specialistvlad/addonforge/modules/download"
	"github.com/specialistvlad/addonforge/modules/env_vars"
	"github.com/specialistvlad/addonforge/modules/extension_build"
	"github.com/specialistvlad/addonforge/modules/extract"
	"github.com/specialistvlad/addonforge/modules/manifest"
	"github.com/specialistvlad/addonforge/modules/print"
	"github.com/specialistvlad/addonforge/modules/psx_check"
	"github.com/specialistvlad/addonforge/modules/pytest"
	"github.com/specialistvlad/addonforge/modules/unzip"
)

// coreModules is the definitive list of all modules that are compiled into
// the addonforge binary.
var coreModules = []registry.Module{
	&artifactmod.Module{},
	&command.Module{},
	&download.Module{},
	&env_vars.Module{},
	&extension_build.Module{},
	&extract.Module{},
	&manifest.Module{},
	&print.Module{},
	&psx_check.Module{},
	&pytest.Module{},
	&unzip.Module{},
}
