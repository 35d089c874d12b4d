package eval

// parseArgList splits src up to the closing delim into at most nfargs
// comma-separated arguments, the last one taking the rest of the list.
// With EvEval set each argument is evaluated with EvFCheck added;
// otherwise it is copied verbatim.
//
// When the closer is found, found is true and next indexes the byte
// after it. Otherwise no arguments are built and next is the end of the
// region the tokenizer compacted; the caller must ignore src[next:].
func (ctx *EvalContext) parseArgList(src []byte, delim byte, eval int, nfargs int, cargs []string) (args []string, next int, found bool) {
	tz := ctx.tokenizer()
	start, end, after := tz.scan(src, delim, 0)
	if after < 0 {
		return nil, end, false
	}

	region := src[start:end]
	peval := eval &^ EvEval
	more := true
	for len(args) < nfargs && more {
		var d byte = ','
		if len(args) == nfargs-1 {
			d = 0
		}
		s, e, n := tz.scan(region, d, peval)
		tok := region[s:e]
		if n < 0 {
			more = false
		} else {
			region = region[n:]
		}
		if eval&EvEval != 0 {
			args = append(args, ctx.execToString(tok, eval|EvFCheck, cargs))
		} else {
			args = append(args, string(tok))
		}
	}
	return args, after, true
}
