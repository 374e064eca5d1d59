package memdir

import (
	"fmt"

	"github.com/brettbedarf/treenav"
	"github.com/brianvoe/gofakeit/v7"
)

// RandomOptions shapes a generated tree.
type RandomOptions struct {
	MaxDepth   int // deepest directory level below root
	MaxEntries int // upper bound on entries per directory
}

// Random generates a tree mounted at root with files, directories and
// other entries interleaved in listing order. The same faker seed always
// yields the same tree.
func Random(root string, faker *gofakeit.Faker, opts RandomOptions) *Tree {
	t := New(root)
	fill(faker, t.top, 0, opts)
	return t
}

func fill(faker *gofakeit.Faker, dir *node, depth int, opts RandomOptions) {
	n := faker.Number(0, opts.MaxEntries)
	for i := range n {
		// index suffix keeps names unique within a directory
		roll := faker.Number(0, 9)
		switch {
		case roll <= 5:
			dir.children = append(dir.children, &node{
				name: fmt.Sprintf("%s-%d.%s", faker.Word(), i, faker.FileExtension()),
				typ:  treenav.RegularEntry,
			})
		case roll <= 8 && depth < opts.MaxDepth:
			sub := &node{name: fmt.Sprintf("%s-%d", faker.Noun(), i), typ: treenav.DirEntry}
			dir.children = append(dir.children, sub)
			fill(faker, sub, depth+1, opts)
		default:
			dir.children = append(dir.children, &node{
				name: fmt.Sprintf("%s-%d.lnk", faker.Word(), i),
				typ:  treenav.OtherEntry,
			})
		}
	}
}
