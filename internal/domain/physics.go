package domain

// Physics holds the force-directed layout constants.
// Values are hot-reloadable from the config file; DefaultPhysics is the tuned set.
type Physics struct {
	Repulsion     float64 `json:"repulsion" yaml:"repulsion" validate:"gte=0"`
	MinDistanceSq float64 `json:"min_distance_sq" yaml:"min_distance_sq" validate:"gt=0"`
	SpringK       float64 `json:"spring_k" yaml:"spring_k" validate:"gte=0"`
	SpringLength  float64 `json:"spring_length" yaml:"spring_length" validate:"gte=0"`
	MinSpringDist float64 `json:"min_spring_dist" yaml:"min_spring_dist" validate:"gt=0"`
	Gravity       float64 `json:"gravity" yaml:"gravity" validate:"gte=0"`
	Damping       float64 `json:"damping" yaml:"damping" validate:"gt=0,lte=1"`
	Center        Vec2    `json:"center" yaml:"center"`
	SpawnMin      Vec2    `json:"spawn_min" yaml:"spawn_min"`
	SpawnMax      Vec2    `json:"spawn_max" yaml:"spawn_max"`
}

// DefaultPhysics returns the layout constants the front-end is tuned for
func DefaultPhysics() Physics {
	return Physics{
		Repulsion:     5000.0,
		MinDistanceSq: 100.0,
		SpringK:       0.05,
		SpringLength:  50.0,
		MinSpringDist: 1.0,
		Gravity:       0.05,
		Damping:       0.90,
		Center:        Vec2{X: 400, Y: 300},
		SpawnMin:      Vec2{X: 300, Y: 200},
		SpawnMax:      Vec2{X: 500, Y: 400},
	}
}
