// Package branchrules provides branch push-restriction administration for
// bbctl.
//
// It offers CommandBuilder for the Cobra command group and Service for
// creating push-restriction rules that exempt a single user from the pull
// request requirement on the default branch.
package branchrules
