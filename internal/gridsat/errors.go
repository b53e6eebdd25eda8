package gridsat

import "errors"

// ErrUnsupportedConstraint is wrapped into the error returned by flatten
// and evalExpr when a caller's facade.Expr tree contains a node type
// this package does not implement.
var ErrUnsupportedConstraint = errors.New("gridsat: unsupported constraint or expression node")
