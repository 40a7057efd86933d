package engine

import "github.com/zynqcloud/kvfs/internal/kv"

const (
	familyFiles      = "files"
	familyChunks     = "chunks"
	familyUnresolved = "unresolved"
	rootNamespace    = "kvfs"
)

func fileKey(path []string) kv.Key {
	k := kv.Key{rootNamespace, familyFiles}
	for _, s := range path {
		k = append(k, s)
	}
	return k
}

func filePrefix(path []string) kv.Key {
	return fileKey(path)
}

func chunkKey(uri string, index int64) kv.Key {
	return kv.Key{rootNamespace, familyChunks, uri, index}
}

func chunkPrefix(uri string) kv.Key {
	return kv.Key{rootNamespace, familyChunks, uri}
}

func chunkRangeFrom(uri string, fromIndex int64) (start, end kv.Key) {
	return kv.Key{rootNamespace, familyChunks, uri, fromIndex},
		kv.Key{rootNamespace, familyChunks, uri, int64(1<<62)}
}

func unresolvedKey(uri string) kv.Key {
	return kv.Key{rootNamespace, familyUnresolved, uri}
}

func unresolvedPrefix() kv.Key {
	return kv.Key{rootNamespace, familyUnresolved}
}

func kvListParams(start, end kv.Key) kv.ListParams {
	return kv.ListParams{Start: start, End: end}
}

func kvPrefixParams(prefix kv.Key) kv.ListParams {
	return kv.ListParams{Prefix: prefix}
}

// lastPathSegmentExt returns the final '.'-delimited suffix of the last path
// segment, without the dot, or "" if there is none.
func lastPathSegmentExt(path []string) string {
	if len(path) == 0 {
		return ""
	}
	last := path[len(path)-1]
	for i := len(last) - 1; i >= 0; i-- {
		if last[i] == '.' {
			return last[i+1:]
		}
	}
	return ""
}
