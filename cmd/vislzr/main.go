// Command vislzr serves and inspects context-aware node actions for a project graph.
package main

func main() {
	Execute()
}
