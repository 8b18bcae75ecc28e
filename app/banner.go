// Copyright 2025 The Velox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
)

// Banner styles.
var (
	bannerGradient = []string{"12", "14", "10", "11"}

	bannerLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Width(12).
				PaddingLeft(2)

	bannerValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Bold(true)
)

// printStartupBanner renders the ASCII-art banner with listen address and
// route count. Called from Run in development mode only.
func (a *App) printStartupBanner(addr string, routes int) {
	art := figure.NewFigure(a.name, "", false)

	var styled strings.Builder
	for _, line := range art.Slicify() {
		if strings.TrimSpace(line) == "" {
			styled.WriteString("\n")
			continue
		}
		for i, char := range line {
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(bannerGradient[i%len(bannerGradient)])).
				Bold(true)
			styled.WriteString(style.Render(string(char)))
		}
		styled.WriteString("\n")
	}

	displayAddr := addr
	if strings.HasPrefix(addr, ":") {
		displayAddr = "0.0.0.0" + addr
	}

	fmt.Fprintln(os.Stdout, styled.String())
	fmt.Fprintln(os.Stdout,
		bannerLabelStyle.Render("Listening")+bannerValueStyle.Render("http://"+displayAddr))
	fmt.Fprintln(os.Stdout,
		bannerLabelStyle.Render("Routes")+bannerValueStyle.Render(fmt.Sprintf("%d", routes)))
	fmt.Fprintln(os.Stdout)
}
