// Package users provides repository permission and group membership
// administration for bbctl.
//
// It offers CommandBuilder for the Cobra command group and Service for
// idempotent permission reconciliation: the current grant is read before any
// mutation so that writes matching remote state become no-ops.
package users
