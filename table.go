//go:build linux
// +build linux

package epollweb

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// connTable owns every accepted connection. It is only used from the event
// loop goroutine.
type connTable struct {
	conns map[uint64]*conn
	log   logrus.FieldLogger
}

func newConnTable(log logrus.FieldLogger) *connTable {
	return &connTable{
		conns: map[uint64]*conn{},
		log:   log,
	}
}

// insert adds c. A connection already stored under the same id is closed
// and replaced.
func (t *connTable) insert(c *conn) {
	if prev, ok := t.conns[c.id]; ok && prev != c {
		t.log.WithField("token", c.id).Error("connection id already exists")
		prev.close()
	}
	t.conns[c.id] = c
}

func (t *connTable) get(id uint64) (*conn, error) {
	c, ok := t.conns[id]
	if !ok {
		return nil, errors.Wrapf(ErrConnectionNotFound, "token %d", id)
	}
	return c, nil
}

// remove closes and deletes the connection, it is a no-op for unknown ids.
func (t *connTable) remove(id uint64) {
	c, ok := t.conns[id]
	if !ok {
		return
	}
	delete(t.conns, id)
	if err := c.close(); err != nil {
		t.log.WithField("token", id).WithError(err).Warn("failed to close connection")
	}
}

func (t *connTable) len() int {
	return len(t.conns)
}

func (t *connTable) closeAll() {
	for id := range t.conns {
		t.remove(id)
	}
}
