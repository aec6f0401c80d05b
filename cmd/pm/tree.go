package main

import (
	"fmt"
	"sort"
	"strings"
)

// treeNode is one level of the rendered listing. Leaves are entries,
// interior nodes are folders.
type treeNode struct {
	children map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{children: map[string]*treeNode{}}
}

func (n *treeNode) insert(name string) {
	cur := n
	for _, seg := range strings.Split(name, "/") {
		next, ok := cur.children[seg]
		if !ok {
			next = newTreeNode()
			cur.children[seg] = next
		}
		cur = next
	}
}

// printTree renders names the way `pass ls` does. An empty list prints
// nothing.
func printTree(names []string) {
	root := newTreeNode()
	for _, name := range names {
		root.insert(name)
	}
	printTreeNode(root, "")
}

func printTreeNode(n *treeNode, indent string) {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		branch, childIndent := "├── ", indent+"│   "
		if i == len(keys)-1 {
			branch, childIndent = "└── ", indent+"    "
		}
		fmt.Printf("%s%s%s\n", indent, branch, k)
		printTreeNode(n.children[k], childIndent)
	}
}
