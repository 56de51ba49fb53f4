package version

import (
	"flag"
	"fmt"
	"os"
)

var (
	// assigned with -ldflags "-X .../version.GitCommitId=..." at build time
	GitCommitId string
	flagVersion = flag.Bool("version", false, "print version")
)

func VersionString() string {
	if GitCommitId == "" {
		return "spar_sim (unknown commit)"
	}
	return fmt.Sprintf("spar_sim git commit id: %s", GitCommitId)
}

func MayPrintVersionAndExit() {
	if *flagVersion {
		fmt.Println(VersionString())
		os.Exit(0)
	}
}
