package marketdata

import "fmt"

var (
	ErrDataIntegrity = fmt.Errorf("data integrity violation")
)
