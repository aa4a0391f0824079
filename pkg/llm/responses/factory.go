package responses

import "textflux/pkg/llm"

func init() {
	llm.RegisterStrategy(llm.DialectResponses, func() llm.Strategy {
		return &ResponsesStrategy{}
	})
}
