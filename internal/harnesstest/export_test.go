package harnesstest

// RunWith runs m against e the way Main does.
func RunWith(e *Env, m interface{ Run() int }) int {
	return e.run(m)
}
