package main

import (
	"pypilatest/internal/console"
	"pypilatest/internal/update"
)

// reportCheckResult adds the closing line for `check`. Outdated, ahead and
// unreachable results were already announced during the check.
func reportCheckResult(out *console.Console, id update.Identity, result update.Result) {
	switch result.Status {
	case update.StatusUpToDate:
		if result.Remote == "" {
			out.Info("Skipped the PyPI lookup for %s: %s is not a release version.", id.Name(), id.LocalVersion())
			return
		}
		out.Success("%s %s is the latest version.", id.Name(), id.LocalVersion())
	case update.StatusOutdated:
		out.Println("Run %s to upgrade.", out.Command("pypi-latest upgrade "+id.Name()+" "+id.LocalVersion()))
	}
}
