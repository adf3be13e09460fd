// Package projects provides workspace project administration for bbctl.
//
// It offers CommandBuilder for the Cobra command group and Service for
// existence-guarded project creation against the Bitbucket API.
package projects
