package htfile

type CredEntry struct {
	Name string
	Hash string
}

type GroupEntry struct {
	Name    string
	Members []string
}
