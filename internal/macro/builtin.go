package macro

// builtins is the default macro set available before any definition file
// is loaded. User definitions override these name by name. The DDOC macro
// is the page skeleton: the renderer defines BODY and TITLE, then expands
// $(DDOC) to assemble the final document.
var builtins = map[string]string{
	"B":     "<b>$0</b>",
	"I":     "<i>$0</i>",
	"U":     "<u>$0</u>",
	"P":     "<p>$0</p>",
	"BR":    "<br>",
	"BIG":   "<span class=\"big\">$0</span>",
	"SMALL": "<span class=\"small\">$0</span>",

	"DL": "<dl>$0</dl>",
	"DT": "<dt>$0</dt>",
	"DD": "<dd>$0</dd>",

	"OL": "<ol>$0</ol>",
	"UL": "<ul>$0</ul>",
	"LI": "<li>$0</li>",

	"TABLE": "<table>$0</table>",
	"TR":    "<tr>$0</tr>",
	"TH":    "<th>$0</th>",
	"TD":    "<td>$0</td>",

	"LINK":  "<a href=\"$0\">$0</a>",
	"LINK2": "<a href=\"$1\">$+</a>",

	"RED":    "<span style=\"color: red\">$0</span>",
	"GREEN":  "<span style=\"color: green\">$0</span>",
	"BLUE":   "<span style=\"color: blue\">$0</span>",
	"YELLOW": "<span style=\"color: yellow\">$0</span>",
	"BLACK":  "<span style=\"color: black\">$0</span>",
	"WHITE":  "<span style=\"color: white\">$0</span>",

	"H1": "<h1>$0</h1>",
	"H2": "<h2>$0</h2>",
	"H3": "<h3>$0</h3>",

	"D_CODE":       "<pre class=\"d_code\">$0</pre>",
	"DDOC_COMMENT": "<!-- $0 -->",

	"TITLE": "",
	"BODY":  "",

	"DDOC": `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>$(TITLE)</title>
</head>
<body>
$(BODY)
</body>
</html>`,
}

// NewBuiltinTable creates a table pre-populated with the default macro set.
func NewBuiltinTable() *Table {
	t := NewTable()
	for name, value := range builtins {
		t.Define(name, value)
	}
	return t
}

// IsBuiltin reports whether name belongs to the default macro set.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}
