package strategy

import "fmt"

var (
	ErrInvalidParameter = fmt.Errorf("invalid block parameter")
	ErrGraphStructure   = fmt.Errorf("invalid graph structure")
)
