// Command pgforge generates typed source artifacts from an introspected
// database schema, driven by a project file and a set of plugins.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
