package psx

import (
	"fmt"
	"os"
)

// pskSections is the section layout a conforming exporter writes, in order.
var pskSections = []string{
	"ACTRHEAD",
	"PNTS0000",
	"VTXW0000",
	"FACE0000",
	"MATT0000",
	"REFSKELT",
	"RAWWEIGHTS",
}

// psaHeadSection is the magic first section of a PSA file.
const psaHeadSection = "ANIMHEAD"

// ValidatePsk checks that the given sections form a structurally valid PSK
// file: the full required section sequence in exporter order, with counts
// inside the exporter's hard limits.
func ValidatePsk(sections []Section) error {
	if len(sections) < len(pskSections) {
		return fmt.Errorf("psx: PSK has %d sections, want at least %d", len(sections), len(pskSections))
	}
	for i, want := range pskSections {
		if sections[i].Name != want {
			return fmt.Errorf("psx: PSK section %d is %q, want %q", i, sections[i].Name, want)
		}
	}

	counts := make(map[string]int32, len(sections))
	for _, s := range sections {
		counts[s.Name] = s.DataCount
	}

	if n := counts["VTXW0000"]; n > MaxWedges {
		return fmt.Errorf("psx: wedge count %d exceeds limit of %d", n, MaxWedges)
	}
	if n := counts["MATT0000"]; n > MaxMaterials {
		return fmt.Errorf("psx: material count %d exceeds limit of %d", n, MaxMaterials)
	}
	if n := counts["REFSKELT"]; n > MaxBones {
		return fmt.Errorf("psx: bone count %d exceeds limit of %d", n, MaxBones)
	}
	if counts["REFSKELT"] == 0 {
		return fmt.Errorf("psx: PSK must contain at least one bone")
	}
	return nil
}

// ValidatePsa checks that the given sections form a structurally valid PSA
// file: the ANIMHEAD magic section first, and bone names within limits when
// present.
func ValidatePsa(sections []Section) error {
	if len(sections) == 0 {
		return fmt.Errorf("psx: PSA contains no sections")
	}
	if sections[0].Name != psaHeadSection {
		return fmt.Errorf("psx: PSA first section is %q, want %q", sections[0].Name, psaHeadSection)
	}
	for _, s := range sections {
		if s.Name == "BONENAMES" && s.DataCount > MaxBones {
			return fmt.Errorf("psx: bone count %d exceeds limit of %d", s.DataCount, MaxBones)
		}
	}
	return nil
}

// ValidateFile reads and validates a .psk or .psa file based on its leading
// magic section.
func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sections, err := ReadSections(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(sections) == 0 {
		return fmt.Errorf("psx: %s contains no sections", path)
	}

	switch sections[0].Name {
	case "ACTRHEAD":
		if err := ValidatePsk(sections); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	case psaHeadSection:
		if err := ValidatePsa(sections); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	default:
		return fmt.Errorf("psx: %s is neither PSK nor PSA (first section %q)", path, sections[0].Name)
	}
	return nil
}
