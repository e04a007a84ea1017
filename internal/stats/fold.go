package stats

// TotalName is the channel name of a table's combined row.
const TotalName = "Total"

// Fold combines rows whose reduced keys match with InverseVariance, in
// the order the reduced keys first appear.
func Fold(t *Table, reduce func(Key) Key) *Table {
	groups := make(map[Key][]Row)
	var order []Key
	for _, r := range t.Rows() {
		k := reduce(r.Key)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	out := NewTable()
	for _, k := range order {
		if len(groups[k]) == 1 {
			r := groups[k][0]
			r.Key = k
			out.Add(r)
			continue
		}
		out.Add(InverseVariance(k, groups[k]))
	}
	return out
}

// Filter returns the rows of t for which keep is true.
func Filter(t *Table, keep func(Key) bool) *Table {
	out := NewTable()
	for _, r := range t.Rows() {
		if keep(r.Key) {
			out.Add(r)
		}
	}
	return out
}

// WithTotal returns a copy of t with a Total row appended.
func WithTotal(t *Table, key Key) *Table {
	out := NewTable()
	for _, r := range t.Rows() {
		out.Add(r)
	}
	key.Channel = TotalName
	out.Add(InverseVariance(key, t.Rows()))
	return out
}

// Report holds the camera, telescope and experiment tables. Every table
// ends with a Total row.
type Report struct {
	Cameras    []*Table
	Telescopes []*Table
	Experiment *Table
}

// NewReport builds every level from a channel table. Telescope rows fold
// the camera rows sharing a band ID, and experiment rows fold the
// telescope rows.
func NewReport(channels *Table) *Report {
	rep := &Report{}
	var tels []string
	seenTel := map[string]bool{}
	type camID struct{ tel, cam string }
	var cams []camID
	seenCam := map[camID]bool{}
	for _, k := range channels.Keys() {
		if !seenTel[k.Telescope] {
			seenTel[k.Telescope] = true
			tels = append(tels, k.Telescope)
		}
		id := camID{k.Telescope, k.Camera}
		if !seenCam[id] {
			seenCam[id] = true
			cams = append(cams, id)
		}
	}

	for _, id := range cams {
		t := Filter(channels, func(k Key) bool { return k.Telescope == id.tel && k.Camera == id.cam })
		rep.Cameras = append(rep.Cameras, WithTotal(t, Key{Telescope: id.tel, Camera: id.cam}))
	}

	telRows := NewTable()
	for _, tel := range tels {
		t := Filter(channels, func(k Key) bool { return k.Telescope == tel })
		folded := Fold(t, func(k Key) Key { return Key{Telescope: k.Telescope, Channel: k.Channel} })
		rep.Telescopes = append(rep.Telescopes, WithTotal(folded, Key{Telescope: tel}))
		for _, r := range folded.Rows() {
			telRows.Add(r)
		}
	}

	exp := Fold(telRows, func(k Key) Key { return Key{Channel: k.Channel} })
	rep.Experiment = WithTotal(exp, Key{})
	return rep
}
