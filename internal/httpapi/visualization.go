package httpapi

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/brinkfield/multicore/internal/docstore"
)

// buildTreeFromRecords groups file records into a two-level tree of
// modality -> collection -> file, mirroring the layout storage.Store
// writes to disk without touching the filesystem itself.
func buildTreeFromRecords(records []docstore.FileRecord) treeNode {
	type collectionKey struct{ modality, collection string }
	byModality := map[string]map[string][]docstore.FileRecord{}

	for _, rec := range records {
		if _, ok := byModality[rec.Modality]; !ok {
			byModality[rec.Modality] = map[string][]docstore.FileRecord{}
		}
		byModality[rec.Modality][rec.Collection] = append(byModality[rec.Modality][rec.Collection], rec)
	}

	root := treeNode{Name: "root", Type: "folder"}
	for _, modality := range sortedKeysOf(byModality) {
		modNode := treeNode{Name: modality, Type: "folder"}
		collections := byModality[modality]
		for _, collection := range sortedKeysOf(collections) {
			colNode := treeNode{Name: collection, Type: "folder"}
			files := collections[collection]
			sort.Slice(files, func(i, j int) bool { return files[i].OriginalName < files[j].OriginalName })
			for _, f := range files {
				size := f.SizeBytes
				colNode.Children = append(colNode.Children, treeNode{
					Name:        f.OriginalName,
					Type:        "file",
					Size:        &size,
					StoragePath: f.StorageURI,
				})
			}
			modNode.Children = append(modNode.Children, colNode)
		}
		root.Children = append(root.Children, modNode)
	}
	return root
}

func sortedKeysOf[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildTreeFromStorage walks the physical storage root directly; used
// when the document store has no records yet (or is unreachable) so
// the visualization endpoint still reflects what's on disk.
func buildTreeFromStorage(root string) treeNode {
	node := treeNode{Name: filepath.Base(root), Type: "folder"}
	entries, err := os.ReadDir(root)
	if err != nil {
		return node
	}
	for _, e := range entries {
		full := filepath.Join(root, e.Name())
		if e.IsDir() {
			node.Children = append(node.Children, buildTreeFromStorage(full))
			continue
		}
		info, err := e.Info()
		var size *int64
		if err == nil {
			s := info.Size()
			size = &s
		}
		node.Children = append(node.Children, treeNode{
			Name:        e.Name(),
			Type:        "file",
			Size:        size,
			StoragePath: full,
		})
	}
	sort.Slice(node.Children, func(i, j int) bool { return node.Children[i].Name < node.Children[j].Name })
	return node
}
