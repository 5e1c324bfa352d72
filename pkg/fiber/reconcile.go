package fiber

import (
	"github.com/vango-dev/ley/pkg/element"
)

// reconcileChildren diffs the previous children of parent (reached through
// parent.alt) against elements and links the resulting work-in-progress
// children under parent. Previous fibers that are not reused are appended
// to the pass's deletion list.
//
// Keyed children are matched by key with a one-sided lookahead in both
// directions; a previous fiber claimed ahead of the scan is tagged
// TagSkip, and a later element claimed by the current previous fiber gets
// a relation anchor so it is moved into place when the scan reaches it.
// Non-keyed children are matched by position and type.
func (s *Scheduler) reconcileChildren(parent *Fiber, elements []*element.Element) {
	if len(elements) == 0 {
		elements = []*element.Element{element.Text("")}
	}

	var alt *Fiber
	if parent.alt != nil {
		alt = parent.alt.child
	}
	parent.child = nil

	// relations maps a later element to the previous fiber it will reuse.
	var relations map[*element.Element]*Fiber

	var prev, f *Fiber
	i := 0

	relate := func(lookahead bool) {
		if i == 0 {
			parent.child = f
		} else {
			prev.sibling = f
		}
		prev = f
		if !lookahead && alt != nil {
			alt = alt.sibling
		}
		i++
	}
	claim := func(el *element.Element, fb *Fiber) {
		if relations == nil {
			relations = make(map[*element.Element]*Fiber)
		}
		relations[el] = fb
	}

	for {
		var el *element.Element
		if i < len(elements) {
			el = elements[i]
		}

		// Element claimed by a lookahead: move the previous fiber here.
		if el != nil {
			if rel, ok := relations[el]; ok {
				f = clone(rel, parent, el, TagInsert, prev)
				relate(true)
				continue
			}
		}

		if alt != nil {
			// Previous fiber already claimed by a lookahead.
			if alt.tag == TagSkip {
				alt = alt.sibling
				continue
			}

			if el == nil {
				s.deletions = append(s.deletions, alt)
				alt = alt.sibling
				continue
			}

			switch {
			case alt.keyed && el.Keyed:
				if alt.key == el.Key && alt.typ == el.Type {
					f = clone(alt, parent, el, TagUpdate, nil)
					relate(false)
					continue
				}

				altMatch := siblingByKey(alt, el)
				elMatch := elementByKey(elements, i+1, alt)

				if altMatch != nil {
					altMatch.tag = TagSkip
					if elMatch != nil {
						tag := TagInsert
						if altMatch == alt.sibling {
							tag = TagUpdate
						}
						f = clone(altMatch, parent, el, tag, alt)
						claim(elMatch, alt)
						relate(false)
						continue
					}
					f = clone(altMatch, parent, el, TagInsert, alt)
					s.deletions = append(s.deletions, alt)
					relate(false)
					continue
				}

				f = newFiber(el, parent, TagInsert, alt)
				if elMatch != nil {
					claim(elMatch, alt)
				} else {
					s.deletions = append(s.deletions, alt)
				}
				relate(false)

			case alt.keyed:
				f = newFiber(el, parent, TagInsert, alt)
				if elMatch := elementByKey(elements, i+1, alt); elMatch != nil {
					claim(elMatch, alt)
				} else {
					s.deletions = append(s.deletions, alt)
				}
				relate(false)

			case el.Keyed:
				if altMatch := siblingByKey(alt, el); altMatch != nil {
					f = clone(altMatch, parent, el, TagInsert, alt)
					altMatch.tag = TagSkip
				} else {
					f = newFiber(el, parent, TagInsert, alt)
				}
				s.deletions = append(s.deletions, alt)
				relate(false)

			default:
				if alt.typ == el.Type {
					f = clone(alt, parent, el, TagUpdate, nil)
				} else {
					f = newFiber(el, parent, TagInsert, alt)
					s.deletions = append(s.deletions, alt)
				}
				relate(false)
			}
			continue
		}

		if el != nil {
			f = newFiber(el, parent, TagInsert, prev)
			relate(false)
			continue
		}
		break
	}

	if prev != nil {
		prev.sibling = nil
	}
	if parent.alt != nil {
		for a := parent.alt.child; a != nil; a = a.sibling {
			a.tag = TagNone
		}
	}
}

// siblingByKey returns the first sibling after f with el's key and type.
func siblingByKey(f *Fiber, el *element.Element) *Fiber {
	for f = f.sibling; f != nil; f = f.sibling {
		if f.keyed && f.key == el.Key && f.typ == el.Type {
			return f
		}
	}
	return nil
}

// elementByKey returns the first element from start on with f's key and type.
func elementByKey(elements []*element.Element, start int, f *Fiber) *element.Element {
	for _, el := range elements[start:] {
		if el.Keyed && el.Key == f.key && f.typ == el.Type {
			return el
		}
	}
	return nil
}
