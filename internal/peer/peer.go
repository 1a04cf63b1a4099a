// Package peer разрешает идентификатор прокси-пира в адрес host[:port].
package peer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownPeer — пир не найден в каталоге.
var ErrUnknownPeer = errors.New("unknown proxy peer")

// ErrInvalidDirectory — строка каталога не разобрана.
var ErrInvalidDirectory = errors.New("invalid peer directory")

// Directory — статический каталог пиров "id -> host:port".
//
// Пустой каталог работает в режиме passthrough: идентификатор пира
// сам является адресом (так пиры адресуются в docker-compose и k8s).
type Directory struct {
	peers map[string]string
}

// ParseDirectory разбирает строку вида "id=host:port,id2=host2".
func ParseDirectory(s string) (*Directory, error) {
	d := &Directory{peers: make(map[string]string)}

	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, addr, ok := strings.Cut(entry, "=")
		id, addr = strings.TrimSpace(id), strings.TrimSpace(addr)
		if !ok || id == "" || addr == "" {
			return nil, fmt.Errorf("%w: entry %q", ErrInvalidDirectory, entry)
		}
		if _, dup := d.peers[id]; dup {
			return nil, fmt.Errorf("%w: duplicate peer %q", ErrInvalidDirectory, id)
		}
		d.peers[id] = addr
	}

	return d, nil
}

// Resolve возвращает адрес пира.
func (d *Directory) Resolve(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrUnknownPeer)
	}

	if d == nil || len(d.peers) == 0 {
		return id, nil
	}

	addr, ok := d.peers[id]
	if !ok {
		return "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownPeer, id, strings.Join(d.ids(), ", "))
	}
	return addr, nil
}

func (d *Directory) ids() []string {
	ids := make([]string, 0, len(d.peers))
	for id := range d.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
