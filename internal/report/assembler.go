package report

import (
	"time"

	"go.uber.org/zap"

	"lidercheck/internal/clock"
	"lidercheck/internal/compliance"
)

const defaultWorkers = 4

// Assembler builds workbook descriptions from checklist data.
type Assembler struct {
	TieBreak compliance.TieBreak
	Location *time.Location
	Loader   ImageLoader
	Logger   *zap.Logger
	// Workers bounds concurrent image preparation.
	Workers int
}

// NewAssembler returns an Assembler with the URL loader.
func NewAssembler(tb compliance.TieBreak, loc *time.Location, logger *zap.Logger) *Assembler {
	if loc == nil {
		loc = clock.Zone(clock.DefaultOffset)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		TieBreak: tb,
		Location: loc,
		Loader:   URLLoader{},
		Logger:   logger,
		Workers:  defaultWorkers,
	}
}

func (a *Assembler) workers() int {
	if a.Workers <= 0 {
		return defaultWorkers
	}
	return a.Workers
}

// Palette shared by the sheets.
const (
	colorWhite     = "FFFFFF"
	colorBlack     = "000000"
	colorBlue      = "2563EB"
	colorDarkGray  = "4B5563"
	colorLightGray = "EEEEEE"
	colorMuted     = "666666"
	colorNG        = "FF0000"
	colorOK        = "008000"
	colorNA        = "D4AC0D"
)

var (
	titleStyle = Style{Font: "Arial", Size: 14, Bold: true, Color: colorWhite, Fill: colorBlue, HAlign: "center", VAlign: "center"}
	infoStyle  = Style{Font: "Arial", Size: 11, Bold: true, Fill: colorLightGray, HAlign: "center", VAlign: "center"}
	headStyle  = Style{Font: "Arial", Size: 10, Bold: true, Color: colorWhite, Fill: colorDarkGray, HAlign: "center", VAlign: "center", Border: true}
	indexStyle = Style{Bold: true, Color: colorWhite, Fill: colorDarkGray, HAlign: "center", VAlign: "center", Wrap: true, Border: true}
	textStyle  = Style{Color: colorBlack, Fill: colorWhite, HAlign: "left", VAlign: "center", Wrap: true, Border: true}
	blankStyle = Style{Color: colorBlack, Fill: colorWhite, HAlign: "center", VAlign: "center", Wrap: true, Border: true}
	footStyle  = Style{Size: 9, Italic: true, Color: colorMuted, Fill: colorWhite, HAlign: "left"}
	bandStyle  = Style{Bold: true, Fill: colorLightGray}
)
