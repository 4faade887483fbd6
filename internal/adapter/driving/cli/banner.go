package cli

import (
	"fmt"

	"github.com/diillson/cloud-price-comparator/pkg/version"
	"github.com/fatih/color"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
          ____ _                 _    ____
         / ___| | ___  _   _  __| |  / ___|___  _ __ ___  _ __   __ _ _ __ ___
        | |   | |/ _ \| | | |/ _' | | |   / _ \| '_ ' _ \| '_ \ / _' | '__/ _ \
        | |___| | (_) | |_| | (_| | | |__| (_) | | | | | | |_) | (_| | | |  __/
         \____|_|\___/ \__,_|\__,_|  \____\___/|_| |_| |_| .__/ \__,_|_|  \___|
                                                         |_|
        `
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(red(banner))

	// Obtem a string formatada da versão através do pacote version
	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("Cloud Price Comparator CLI (v%s)", formattedVersion)))
}
