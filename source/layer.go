package source

func cloneLayer(l Layer) Layer {
	if l.Style != nil {
		l.Style = cloneMap(l.Style)
	}
	if l.Params != nil {
		l.Params = cloneMap(l.Params)
	}
	return l
}
