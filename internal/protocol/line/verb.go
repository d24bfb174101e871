package line

// Verb identifies a command. The set is closed: every inbound line maps to
// exactly one Verb, with VerbUnknown and VerbMessage as catch-alls.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbList
	VerbRead
	VerbDownload
	VerbWrite
	VerbDelete
	VerbSearch
	VerbInfo
	VerbStats
	VerbMessage
	VerbQuit
)

// AllVerbs lists every Verb, in declaration order.
var AllVerbs = []Verb{
	VerbUnknown,
	VerbList,
	VerbRead,
	VerbDownload,
	VerbWrite,
	VerbDelete,
	VerbSearch,
	VerbInfo,
	VerbStats,
	VerbMessage,
	VerbQuit,
}

// String returns the upper-case verb name used in logs and metrics.
func (v Verb) String() string {
	switch v {
	case VerbList:
		return "LIST"
	case VerbRead:
		return "READ"
	case VerbDownload:
		return "DOWNLOAD"
	case VerbWrite:
		return "UPLOAD"
	case VerbDelete:
		return "DELETE"
	case VerbSearch:
		return "SEARCH"
	case VerbInfo:
		return "INFO"
	case VerbStats:
		return "STATS"
	case VerbMessage:
		return "MESSAGE"
	case VerbQuit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// ResponseType returns the response type tag for successful results.
func (v Verb) ResponseType() string {
	return v.String() + "_RESPONSE"
}

// RequiresPrivilege reports whether the verb mutates or exports files and is
// therefore refused to restricted sessions.
func (v Verb) RequiresPrivilege() bool {
	switch v {
	case VerbDownload, VerbWrite, VerbDelete:
		return true
	default:
		return false
	}
}

// Wire tokens.
const (
	TokenStats    = "STATS"
	TokenList     = "/list"
	TokenRead     = "/read"
	TokenDownload = "/download"
	TokenUpload   = "/upload"
	TokenDelete   = "/delete"
	TokenSearch   = "/search"
	TokenInfo     = "/info"
	TokenQuit     = "/quit"
	TokenExit     = "/exit"

	commandPrefix = "/"
)

var commandTokens = map[string]Verb{
	TokenList:     VerbList,
	TokenRead:     VerbRead,
	TokenDownload: VerbDownload,
	TokenUpload:   VerbWrite,
	TokenDelete:   VerbDelete,
	TokenSearch:   VerbSearch,
	TokenInfo:     VerbInfo,
	TokenQuit:     VerbQuit,
	TokenExit:     VerbQuit,
}
