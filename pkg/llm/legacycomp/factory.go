package legacycomp

import "textflux/pkg/llm"

func init() {
	llm.RegisterStrategy(llm.DialectLegacy, func() llm.Strategy {
		return &LegacyStrategy{}
	})
}
