package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		event InboundEvent
		want  EventKind
	}{
		{
			name: "new activity",
			event: InboundEvent{
				AspectType: AspectCreate,
				ObjectType: ObjectActivity,
				ObjectID:   77,
				OwnerID:    "42",
			},
			want: KindActivityCreate,
		},
		{
			name: "athlete deauthorization",
			event: InboundEvent{
				AspectType: AspectUpdate,
				ObjectType: ObjectAthlete,
				ObjectID:   9,
				OwnerID:    "42",
				Updates:    map[string]string{"authorized": "false"},
			},
			want: KindDeauthorization,
		},
		{
			name: "athlete update without deauthorization",
			event: InboundEvent{
				AspectType: AspectUpdate,
				ObjectType: ObjectAthlete,
				Updates:    map[string]string{"title": "renamed"},
			},
			want: KindIgnorable,
		},
		{
			name: "activity update",
			event: InboundEvent{
				AspectType: AspectUpdate,
				ObjectType: ObjectActivity,
			},
			want: KindIgnorable,
		},
		{
			name: "activity delete",
			event: InboundEvent{
				AspectType: AspectDelete,
				ObjectType: ObjectActivity,
			},
			want: KindIgnorable,
		},
		{
			name: "athlete create with authorized true",
			event: InboundEvent{
				AspectType: AspectCreate,
				ObjectType: ObjectAthlete,
				Updates:    map[string]string{"authorized": "true"},
			},
			want: KindIgnorable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&tt.event))
		})
	}
}
