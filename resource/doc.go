// Package resource provides handle tables for host values exposed to scripts.
//
// Scripts never see host pointers. A host value is inserted into a Table and
// the script receives the resulting Handle, a small integer it can only pass
// back to host callbacks:
//
//	outputs := resource.NewTable[*strokebridge.Output]()
//	h := outputs.Insert(out)
//	defer outputs.Remove(h)
//
// Handle 0 is never issued. Observers receive created/dropped events, which
// the engine uses for debug logging.
package resource
