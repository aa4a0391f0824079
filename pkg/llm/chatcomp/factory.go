package chatcomp

import "textflux/pkg/llm"

func init() {
	llm.RegisterStrategy(llm.DialectChat, func() llm.Strategy {
		return &ChatStrategy{}
	})
}
