package keyspace

// Flatten walks a decoded tree depth-first in pre-order and returns the
// directory key paths in traversal order together with a leaf-path to value
// mapping. The root path "/" is never recorded. Accumulators are local to
// the call, so concurrent flattens on one client cannot interfere.
func Flatten(root *Node) (dirs []string, values map[string]string) {
	dirs = []string{}
	values = make(map[string]string)
	flattenNode(root, &dirs, values)
	return dirs, values
}

func flattenNode(n *Node, dirs *[]string, values map[string]string) {
	if n == nil {
		return
	}
	if n.Key != "" && n.Key != "/" {
		if n.Dir {
			*dirs = append(*dirs, n.Key)
		} else {
			values[n.Key] = n.Value
		}
	}
	for _, child := range n.Nodes {
		flattenNode(child, dirs, values)
	}
}
