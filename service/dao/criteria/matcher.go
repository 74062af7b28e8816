package criteria

import (
	"github.com/viant/kcore/service/dao"
)

// MatchUint32 reports whether value satisfies the named parameter. A
// parameter holds either a single uint32 or a []uint32 of accepted values;
// when the name is absent every value matches.
func MatchUint32(name string, value uint32, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		switch actual := parameter.Value.(type) {
		case uint32:
			return value == actual
		case []uint32:
			for _, candidate := range actual {
				if value == candidate {
					return true
				}
			}
			return false
		}
	}
	return true
}
