package canon

// The short-key tables below are the bijective minify keymap of
// spec.md §4.9: one code per statement discriminator, one per
// expression discriminator, and one per common field name. Namespaces
// are disjoint by construction (a leading `$`, `#`, or `.` marks which
// table a code came from) so unminify never has to guess which table
// to consult.

var statementKeys = map[string]string{
	"let":    "$l",
	"set":    "$s",
	"def":    "$d",
	"if":     "$i",
	"return": "$r",
	"print":  "$p",
	"expr":   "$x",
}

var exprKeys = map[string]string{
	"var":    "#v",
	"call":   "#c",
	"spread": "#w",
	"add":    "#+",
	"sub":    "#-",
	"mul":    "#*",
	"div":    "#/",
	"mod":    "#%",
	"pow":    "#^",
	"eq":     "#eq",
	"ne":     "#ne",
	"lt":     "#lt",
	"le":     "#le",
	"gt":     "#gt",
	"ge":     "#ge",
	"and":    "#an",
	"or":     "#or",
	"not":    "#no",
	"list":   "#ls",
	"len":    "#ln",
	"get":    "#gg",
	"has":    "#hs",
	"concat": "#cc",
	"range":  "#rg",
	"input":  "#in",
	"int":    "#it",
}

var fieldKeys = map[string]string{
	"name":   ".n",
	"params": ".p",
	"body":   ".b",
	"cond":   ".c",
	"then":   ".t",
	"else":   ".z",
	"value":  ".v",
	"args":   ".a",
}

// stringRefKey marks an interned-string reference in the binary pack
// format, e.g. {"~": 4}. It shares no prefix character with any table
// above, so a decoder can tell at a glance whether a single-key map is
// a discriminator, a field, or a string reference.
const stringRefKey = "~"

// opKeys merges statementKeys and exprKeys for discriminator lookup:
// a program node's single key is always either a statement or an
// expression/operator discriminator, never both.
var opKeys = mergeKeymaps(statementKeys, exprKeys)

var reverseOpKeys = reverseKeymap(opKeys)
var reverseFieldKeys = reverseKeymap(fieldKeys)

func mergeKeymaps(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func reverseKeymap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}
