package common

import (
	"fmt"

	"github.com/ternarybob/banner"
)

// PrintBanner prints the startup box with the version and the settings an operator checks first
func PrintBanner(config *Config, version string) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetWidth(64)

	b.PrintTopLine()
	b.PrintCenteredText("Finanalyzer")
	b.PrintCenteredText("Financial Document Analyzer")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 10)
	b.PrintKeyValue("Listen", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port), 10)
	b.PrintKeyValue("Provider", string(config.LLM.DefaultProvider), 10)
	b.PrintKeyValue("Data dir", config.Storage.DataDir, 10)
	b.PrintBottomLine()
	fmt.Println()
}
