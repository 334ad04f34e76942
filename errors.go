package skiplist

import "github.com/pkg/errors"

// ErrDuplicateKey is returned by Insert when a key comparing equal to the new one is
// already in the list. The list is left unchanged.
var ErrDuplicateKey = errors.New("skiplist: duplicate key")
