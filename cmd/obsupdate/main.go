// Command obsupdate builds, diffs and packages OBS Studio update artefacts.
package main

import "github.com/obsproject/obs-updater-builder/cmd"

func main() {
	cmd.Execute()
}
