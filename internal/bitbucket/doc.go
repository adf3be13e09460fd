// Package bitbucket provides the HTTP gateway used to administer a Bitbucket
// Cloud workspace.
//
// It offers Client for issuing authenticated API requests, resource existence
// probing that classifies responses without mutating remote state, shared
// outcome classification for mutating calls, and credential resolution from
// the BITBUCKET_* environment variables.
package bitbucket
