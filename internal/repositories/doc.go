// Package repositories provides repository administration for bbctl.
//
// It offers CommandBuilder for the Cobra command group and Service for
// existence-guarded repository creation against the Bitbucket API.
package repositories
