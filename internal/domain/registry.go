package domain

import (
	"sync"

	"overworld-server/internal/core/types"
)

// pool хранит канонические экземпляры одного вида.
// Поиск идёт по самому значению (Go map по comparable-ключу), то есть O(1).
type pool[T comparable] struct {
	kind   types.Kind
	index  map[T]types.Handle
	values []T
}

func newPool[T comparable](kind types.Kind) pool[T] {
	return pool[T]{
		kind:  kind,
		index: make(map[T]types.Handle),
	}
}

func (p *pool[T]) intern(v T) types.Handle {
	if h, ok := p.index[v]; ok {
		return h
	}
	h := types.PackHandle(p.kind, uint32(len(p.values)))
	p.values = append(p.values, v)
	p.index[v] = h
	return h
}

func (p *pool[T]) get(h types.Handle) (T, bool) {
	var zero T
	if !h.Is(p.kind) || int(h.Index()) >= len(p.values) {
		return zero, false
	}
	return p.values[h.Index()], true
}

// Registry - единственный владелец канонических карт, текстур и архетипов.
//
// Реестр только растёт: удаления нет, потому что на ассеты ссылаются
// без владения (двери, спрайты). Заполняется при загрузке мира, дальше
// только читается; чтение безопасно из нескольких горутин.
type Registry struct {
	mu         sync.RWMutex
	maps       pool[Map]
	textures   pool[Texture]
	archetypes pool[TrainerArchetype]
}

func NewRegistry() *Registry {
	return &Registry{
		maps:       newPool[Map](types.KindMap),
		textures:   newPool[Texture](types.KindTexture),
		archetypes: newPool[TrainerArchetype](types.KindArchetype),
	}
}

// InternMap возвращает канонический хэндл карты (существующий или новый)
func (r *Registry) InternMap(m Map) MapHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return MapHandle(r.maps.intern(m))
}

// InternTexture возвращает канонический хэндл текстуры
func (r *Registry) InternTexture(t Texture) TextureHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return TextureHandle(r.textures.intern(t))
}

// InternArchetype возвращает канонический хэндл архетипа тренера
func (r *Registry) InternArchetype(a TrainerArchetype) ArchetypeHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ArchetypeHandle(r.archetypes.intern(a))
}

// Map ищет карту по хэндлу. false - хэндл не из этого реестра.
func (r *Registry) Map(h MapHandle) (Map, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maps.get(types.Handle(h))
}

func (r *Registry) Texture(h TextureHandle) (Texture, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textures.get(types.Handle(h))
}

func (r *Registry) Archetype(h ArchetypeHandle) (TrainerArchetype, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.archetypes.get(types.Handle(h))
}

// HasMap проверяет, что карта была интернирована
func (r *Registry) HasMap(h MapHandle) bool {
	_, ok := r.Map(h)
	return ok
}

// MapHandles возвращает хэндлы всех карт в порядке интернирования
func (r *Registry) MapHandles() []MapHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MapHandle, len(r.maps.values))
	for i := range r.maps.values {
		out[i] = MapHandle(types.PackHandle(types.KindMap, uint32(i)))
	}
	return out
}

// RegistryStats - размеры пулов (для debug-эндпоинта и тестов)
type RegistryStats struct {
	Maps       int `json:"maps"`
	Textures   int `json:"textures"`
	Archetypes int `json:"archetypes"`
}

func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RegistryStats{
		Maps:       len(r.maps.values),
		Textures:   len(r.textures.values),
		Archetypes: len(r.archetypes.values),
	}
}
