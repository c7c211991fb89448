package ecs

// Link is the intrusive hook an entity carries for each list it can be a
// member of. Neighbours are 1-based slot indices; 0 means none.
type Link struct {
	prev, next int32
	linked     bool
}

func (l *Link) Linked() bool { return l.linked }

// Linker maps a slot to the hook a particular list threads through.
type Linker func(slot int32) *Link

// List is a doubly linked list of pool slots. Membership costs no allocation;
// the links live inside the entities themselves.
type List struct {
	head, tail int32
	size       int
	link       Linker
}

func NewList(link Linker) List {
	return List{link: link}
}

func (l *List) Len() int           { return l.size }
func (l *List) Empty() bool        { return l.size == 0 }
func (l *List) Front() int32       { return l.head }
func (l *List) Back() int32        { return l.tail }
func (l *List) Next(s int32) int32 { return l.link(s).next }
func (l *List) Prev(s int32) int32 { return l.link(s).prev }

func (l *List) attach(s int32) *Link {
	k := l.link(s)
	if k.linked {
		panic("ecs: slot is already linked")
	}
	k.linked = true
	l.size++
	return k
}

func (l *List) PushFront(s int32) {
	k := l.attach(s)
	k.prev, k.next = 0, l.head
	if l.head != 0 {
		l.link(l.head).prev = s
	} else {
		l.tail = s
	}
	l.head = s
}

func (l *List) PushBack(s int32) {
	k := l.attach(s)
	k.prev, k.next = l.tail, 0
	if l.tail != 0 {
		l.link(l.tail).next = s
	} else {
		l.head = s
	}
	l.tail = s
}

// InsertBefore links s directly in front of at.
func (l *List) InsertBefore(at, s int32) {
	if at == l.head {
		l.PushFront(s)
		return
	}
	k := l.attach(s)
	a := l.link(at)
	k.prev, k.next = a.prev, at
	l.link(a.prev).next = s
	a.prev = s
}

// InsertAfter links s directly behind at.
func (l *List) InsertAfter(at, s int32) {
	if at == l.tail {
		l.PushBack(s)
		return
	}
	k := l.attach(s)
	a := l.link(at)
	k.prev, k.next = at, a.next
	l.link(a.next).prev = s
	a.next = s
}

// Insert places s after the first element, or at the front of an empty list.
// Recycled slots are queued this way so that reuse order matches the legacy
// allocator.
func (l *List) Insert(s int32) {
	if l.head == 0 {
		l.PushFront(s)
		return
	}
	l.InsertAfter(l.head, s)
}

func (l *List) Remove(s int32) {
	k := l.link(s)
	if !k.linked {
		panic("ecs: removing an unlinked slot")
	}
	if k.prev != 0 {
		l.link(k.prev).next = k.next
	} else {
		l.head = k.next
	}
	if k.next != 0 {
		l.link(k.next).prev = k.prev
	} else {
		l.tail = k.prev
	}
	*k = Link{}
	l.size--
}

// PopFront unlinks and returns the first slot, or 0 if the list is empty.
func (l *List) PopFront() int32 {
	s := l.head
	if s != 0 {
		l.Remove(s)
	}
	return s
}

// Each calls fn for every slot front to back. The successor is read after fn
// returns, so fn may append but must not unlink the slot it is given.
func (l *List) Each(fn func(s int32)) {
	for s := l.head; s != 0; s = l.link(s).next {
		fn(s)
	}
}

// Slots returns the members front to back.
func (l *List) Slots() []int32 {
	out := make([]int32, 0, l.size)
	for s := l.head; s != 0; s = l.link(s).next {
		out = append(out, s)
	}
	return out
}
