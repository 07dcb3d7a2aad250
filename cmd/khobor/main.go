// Command khobor retrieves and normalizes news articles and runs the scrape proxy.
package main

import "github.com/Adda-Baaj/khobor-dash/internal/cli"

func main() {
	cli.Execute()
}
