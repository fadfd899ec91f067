package utils

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// X11Pointer reads the global pointer from the X server. A desktop overlay
// sits below other windows and never receives motion events of its own.
type X11Pointer struct {
	conn *xgb.Conn
	root xproto.Window
}

func OpenX11Pointer() (*X11Pointer, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	return &X11Pointer{conn: conn, root: setup.DefaultScreen(conn).Root}, nil
}

// Position returns the pointer in root window coordinates.
func (p *X11Pointer) Position() (int, int, error) {
	reply, err := xproto.QueryPointer(p.conn, p.root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(reply.RootX), int(reply.RootY), nil
}

func (p *X11Pointer) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
