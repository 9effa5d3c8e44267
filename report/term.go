package report

import (
	"os"

	"github.com/mattn/go-isatty"
)

const (
	colorRed      = "\033[1;31m"
	colorGreen    = "\033[1;32m"
	colorYellow   = "\033[1;33m"
	colorBlue     = "\033[1;34m"
	colorFull     = "\033[1;37m"
	colorDim      = "\033[1;90m"
	underline     = "\033[4m"
	underlineOff  = "\033[24m"
	reset         = "\033[0m"
	bar           = "=========="
	bulletSymbol  = "~~> "
	logSymbol     = "<+> "
	contextSymbol = "->> "
	commandSymbol = ">>-"
	alignIndent   = "    "
	levelSpacing  = "       "
)

func stderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
