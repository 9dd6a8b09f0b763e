// Package update checks whether an installed Python package is the newest
// release on PyPI and, when it is not, offers to upgrade it through pip.
//
// A check is one registry call and one version comparison. Outcomes are
// returned as a Result and announced on the session console; network
// trouble is never fatal. Only a missing package manager during an
// upgrade terminates the process.
//
// Example usage:
//
//	id, err := update.NewIdentity("cookietemple", "1.2.0")
//	if err != nil {
//	    // handle error
//	}
//	checker := update.NewChecker(sess)
//	result, err := checker.CheckAndOfferUpgrade(ctx, id)
package update
