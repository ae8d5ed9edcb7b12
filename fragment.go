package wifi

// subelementIDFragment continues a Multi-Link Link Info subelement.
const subelementIDFragment = 254

// A FragmentChain is an element whose payload did not fit in 255 bytes,
// carried as a primary element followed by Fragment elements.
type FragmentChain struct {
	Primary       Element
	Continuations []Element
}

// Elements returns the chain in transmission order.
func (c FragmentChain) Elements() []Element {
	return append([]Element{c.Primary}, c.Continuations...)
}

// chunks splits a logical payload into the pieces carried by the primary and
// each continuation. An empty payload yields a single empty chunk.
func chunks(payload []byte) [][]byte {
	out := [][]byte{payload[:min(len(payload), maxElementLen)]}
	for rest := payload[len(out[0]):]; len(rest) > 0; {
		n := min(len(rest), maxElementLen)
		out = append(out, rest[:n])
		rest = rest[n:]
	}

	return out
}

// FragmentElement splits e into a primary element and Fragment elements. The
// Element ID Extension octet of an extension element counts toward the primary
// element's 255 bytes. Elements that fit are returned with no continuations.
func FragmentElement(e Element) FragmentChain {
	payload := e.Data
	if e.ID == ElementIDExtension {
		payload = append([]byte{e.Extension}, e.Data...)
	}

	cs := chunks(payload)
	primary := Element{ID: e.ID, Data: cs[0]}
	if e.ID == ElementIDExtension {
		primary.Extension, primary.Data = cs[0][0], cs[0][1:]
	}

	c := FragmentChain{Primary: primary}
	for _, b := range cs[1:] {
		c.Continuations = append(c.Continuations, Element{ID: ElementIDFragment, Data: b})
	}

	return c
}

// Defragment returns the logical element beginning at elems[i] and the number
// of elements it occupied. Fragment elements are consumed only while the
// previous piece was full; a short piece always ends the chain.
func Defragment(elems []Element, i int) (Element, int) {
	e := elems[i]
	if e.Len() < maxElementLen {
		return e, 1
	}

	data := append([]byte(nil), e.Data...)
	n := 1
	for j := i + 1; j < len(elems) && elems[j].ID == ElementIDFragment; j++ {
		data = append(data, elems[j].Data...)
		n++
		if len(elems[j].Data) < maxElementLen {
			break
		}
	}

	e.Data = data
	return e, n
}

// Reassemble coalesces every fragment chain in elems into its logical element.
// Fragment elements that do not follow a full element are dropped.
func Reassemble(elems []Element) []Element {
	out := make([]Element, 0, len(elems))
	for i := 0; i < len(elems); {
		if elems[i].ID == ElementIDFragment {
			i++
			continue
		}

		e, n := Defragment(elems, i)
		out = append(out, e)
		i += n
	}

	return out
}

// A subelement is a Multi-Link Link Info subelement.
type subelement struct {
	ID   uint8
	Data []byte
}

// appendSubelement appends a subelement to b, continuing it with Fragment
// subelements when data exceeds 255 bytes.
func appendSubelement(b []byte, id uint8, data []byte) []byte {
	for i, c := range chunks(data) {
		if i > 0 {
			id = subelementIDFragment
		}
		b = append(b, id, uint8(len(c)))
		b = append(b, c...)
	}

	return b
}

// parseSubelements parses and reassembles the subelements in b. A subelement
// that runs past the end of b ends the walk; the subelements before it are
// still returned.
func parseSubelements(b []byte) ([]subelement, error) {
	var (
		raw []subelement
		err error
	)
	for i := 0; i < len(b); {
		if len(b[i:]) < 2 {
			err = malformed("truncated subelement header")
			break
		}
		id, l := b[i], int(b[i+1])
		i += 2
		if len(b[i:]) < l {
			err = malformed("subelement %d length %d exceeds %d remaining bytes", id, l, len(b[i:]))
			break
		}
		raw = append(raw, subelement{ID: id, Data: b[i : i+l]})
		i += l
	}

	var out []subelement
	for i := 0; i < len(raw); {
		s := raw[i]
		i++
		if s.ID == subelementIDFragment {
			continue
		}
		if len(s.Data) == maxElementLen {
			data := append([]byte(nil), s.Data...)
			for ; i < len(raw) && raw[i].ID == subelementIDFragment; i++ {
				data = append(data, raw[i].Data...)
				if len(raw[i].Data) < maxElementLen {
					i++
					break
				}
			}
			s.Data = data
		}
		out = append(out, s)
	}

	return out, err
}
