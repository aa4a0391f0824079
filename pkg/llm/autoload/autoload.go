// Package autoload registers every dialect strategy via side-effect imports.
// Importing it from main is enough to make all dialects available.
package autoload

import (
	_ "textflux/pkg/llm/chatcomp"
	_ "textflux/pkg/llm/legacycomp"
	_ "textflux/pkg/llm/responses"
)
