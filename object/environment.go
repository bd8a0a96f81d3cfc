package object

type AccessType int

const (
	ACCESS_PUBLIC   = 0
	ACCESS_CONSTANT = 1
)

// An Environment is one frame of the chain: Store holds this frame's
// bindings, Ext points outward. Name resolution walks the chain; so does
// assignment, which mutates the nearest frame that already defines the name.
type Environment struct {
	Store map[string]Storage
	Ext   *Environment
}

type Storage struct {
	obj    Object
	access AccessType
}

func NewEnvironment() *Environment {
	s := make(map[string]Storage)
	return &Environment{Store: s}
}

func NewChildEnvironment(ext *Environment) *Environment {
	env := NewEnvironment()
	env.Ext = ext
	return env
}

func (e *Environment) Get(name string) (Object, bool) {
	storage, ok := e.Store[name]
	if ok || e.Ext == nil {
		return storage.obj, ok
	}
	return e.Ext.Get(name)
}

func (e *Environment) Exists(name string) bool {
	_, ok := e.Store[name]
	if ok || e.Ext == nil {
		return ok
	}
	return e.Ext.Exists(name)
}

// Variable assumed to exist: the caller has checked with Exists.
func (e *Environment) UpdateVar(name string, val Object) {
	_, ok := e.Store[name]
	if ok {
		e.Store[name] = Storage{val, e.Store[name].access}
		return
	}
	e.Ext.UpdateVar(name, val)
}

// Set declares in this frame, shadowing any outer binding of the same name.
func (e *Environment) Set(name string, val Object) Object {
	e.Store[name] = Storage{val, e.Store[name].access}
	return val
}

func (e *Environment) InitializeConstant(name string, val Object) Object {
	e.Store[name] = Storage{val, ACCESS_CONSTANT}
	return val
}

func (e *Environment) IsConstant(name string) bool {
	storage, ok := e.Store[name]
	if ok || e.Ext == nil {
		return storage.access == ACCESS_CONSTANT
	}
	return e.Ext.IsConstant(name)
}

// Delete removes the nearest binding of the name, reporting whether one was
// found anywhere in the chain.
func (e *Environment) Delete(name string) bool {
	if _, ok := e.Store[name]; ok {
		delete(e.Store, name)
		return true
	}
	if e.Ext == nil {
		return false
	}
	return e.Ext.Delete(name)
}

func (e *Environment) StringDumpVariables() string {
	result := ""
	for k, v := range e.Store {
		if v.access != ACCESS_CONSTANT {
			result = result + k + " = " + v.obj.Inspect(ViewPryzmaLiteral) + "\n"
		}
	}
	return result
}
