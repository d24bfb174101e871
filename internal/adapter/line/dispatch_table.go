package line

import (
	"context"

	wire "github.com/marmos91/linefs/internal/protocol/line"
)

type handlerFunc func(ctx context.Context, cmd wire.Command, caller Caller, deps *Deps) (any, error)

// procedure describes how one verb is executed.
type procedure struct {
	Name              string
	Handler           handlerFunc
	RequiresPrivilege bool
}

// DispatchTable maps every verb to its procedure.
var DispatchTable map[wire.Verb]*procedure

func init() {
	DispatchTable = map[wire.Verb]*procedure{
		wire.VerbList: {
			Name:    "LIST",
			Handler: handleList,
		},
		wire.VerbRead: {
			Name:    "READ",
			Handler: handleRead,
		},
		wire.VerbDownload: {
			Name:              "DOWNLOAD",
			Handler:           handleRead,
			RequiresPrivilege: true,
		},
		wire.VerbWrite: {
			Name:              "UPLOAD",
			Handler:           handleWrite,
			RequiresPrivilege: true,
		},
		wire.VerbDelete: {
			Name:              "DELETE",
			Handler:           handleDelete,
			RequiresPrivilege: true,
		},
		wire.VerbSearch: {
			Name:    "SEARCH",
			Handler: handleSearch,
		},
		wire.VerbInfo: {
			Name:    "INFO",
			Handler: handleInfo,
		},
		wire.VerbStats: {
			Name:    "STATS",
			Handler: handleStats,
		},
		wire.VerbMessage: {
			Name:    "MESSAGE",
			Handler: handleMessage,
		},
		wire.VerbQuit: {
			Name:    "QUIT",
			Handler: handleQuit,
		},
		wire.VerbUnknown: {
			Name:    "UNKNOWN",
			Handler: handleUnknown,
		},
	}
}
