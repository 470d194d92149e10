package conflict

import (
	"sort"
	"time"
)

// Пофайловые правила слияния. Общий принцип: ни одна сторона не теряет
// чужие данные — множества объединяются, карты сливаются поэлементно,
// скалярные поля делятся по владельцу (сервер или клиент).

// mergeProfiles сливает локальную и серверную версии профиля:
// счетчики и верификация — серверные, самоописательные поля — локальные
// (если заполнены), словарь настроек — поверх серверной базы.
func mergeProfiles(local, server *UserProfile) *UserProfile {
	merged := *server

	if local.DisplayName != "" {
		merged.DisplayName = local.DisplayName
	}
	if local.Bio != "" {
		merged.Bio = local.Bio
	}
	if local.Location != "" {
		merged.Location = local.Location
	}

	merged.Preferences = deepMerge(server.Preferences, local.Preferences)
	merged.UpdatedAt = laterOf(local.UpdatedAt, server.UpdatedAt)

	return &merged
}

// mergePosts сливает версии поста: контент и счетчики серверные
// (пересчитываются на сервере), лайки объединяются по актору,
// комментарии — по идентификатору.
func mergePosts(local, server *Post) *Post {
	merged := *server

	merged.Likes = mergeLikes(local.Likes, server.Likes)
	merged.Comments = mergeComments(local.Comments, server.Comments)
	merged.UpdatedAt = laterOf(local.UpdatedAt, server.UpdatedAt)

	return &merged
}

// mergeInteractions сливает социальную активность: списки подписок
// серверные, лайки/комментарии объединяются, активность акторов
// сливается по более позднему lastInteraction.
func mergeInteractions(local, server *Interactions) *Interactions {
	merged := *server

	merged.Likes = mergeLikes(local.Likes, server.Likes)
	merged.Comments = mergeComments(local.Comments, server.Comments)

	activity := make(map[string]ActorActivity, len(server.Activity))
	for actor, act := range server.Activity {
		activity[actor] = act
	}
	for actor, act := range local.Activity {
		existing, ok := activity[actor]
		if !ok || act.LastInteraction.After(existing.LastInteraction) {
			activity[actor] = act
		}
	}
	if len(activity) > 0 {
		merged.Activity = activity
	}

	merged.UpdatedAt = laterOf(local.UpdatedAt, server.UpdatedAt)

	return &merged
}

// mergePreferences сливает настройки: интерфейсные поля клиентские,
// приватность серверная, списки интересов объединяются.
func mergePreferences(local, server *Preferences) *Preferences {
	merged := *server

	if local.Theme != "" {
		merged.Theme = local.Theme
	}
	if local.Language != "" {
		merged.Language = local.Language
	}

	merged.Notifications = NotificationPrefs{
		LikesEnabled:    local.Notifications.LikesEnabled,
		CommentsEnabled: local.Notifications.CommentsEnabled,
		FollowsEnabled:  local.Notifications.FollowsEnabled,
		Categories:      mergeBoolMap(server.Notifications.Categories, local.Notifications.Categories),
	}

	merged.FavoriteAthletes = unionStrings(local.FavoriteAthletes, server.FavoriteAthletes)
	merged.FollowedSports = unionStrings(local.FollowedSports, server.FollowedSports)
	merged.UpdatedAt = laterOf(local.UpdatedAt, server.UpdatedAt)

	return &merged
}

// mergeLikes объединяет лайки по актору: отметка не теряется ни одной
// стороной. При пересечении сохраняется серверная копия.
func mergeLikes(local, server []Like) []Like {
	seen := make(map[string]Like, len(server))
	for _, like := range server {
		seen[like.UserID] = like
	}
	for _, like := range local {
		if _, ok := seen[like.UserID]; !ok {
			seen[like.UserID] = like
		}
	}

	merged := make([]Like, 0, len(seen))
	for _, like := range seen {
		merged = append(merged, like)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].UserID < merged[j].UserID
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	return merged
}

// mergeComments объединяет комментарии по идентификатору: при коллизии
// побеждает копия с более поздним createdAt, результат отсортирован
// по возрастанию createdAt.
func mergeComments(local, server []Comment) []Comment {
	seen := make(map[string]Comment, len(local)+len(server))
	for _, c := range local {
		seen[c.ID] = c
	}
	for _, c := range server {
		if existing, ok := seen[c.ID]; !ok || c.CreatedAt.After(existing.CreatedAt) {
			seen[c.ID] = c
		}
	}

	merged := make([]Comment, 0, len(seen))
	for _, c := range seen {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	return merged
}

// deepMerge рекурсивно сливает словари: база — серверная, локальные
// значения перекрывают серверные, вложенные словари сливаются поэлементно
func deepMerge(base, override map[string]any) map[string]any {
	if base == nil && override == nil {
		return nil
	}

	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		if overrideMap, ok := v.(map[string]any); ok {
			if baseMap, ok := merged[k].(map[string]any); ok {
				merged[k] = deepMerge(baseMap, overrideMap)
				continue
			}
		}
		merged[k] = v
	}

	return merged
}

// mergeBoolMap сливает карты категорий, локальные значения перекрывают
func mergeBoolMap(base, override map[string]bool) map[string]bool {
	if base == nil && override == nil {
		return nil
	}

	merged := make(map[string]bool, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}

	return merged
}

// unionStrings объединяет списки без дубликатов, сохраняя порядок
// первого вхождения
func unionStrings(first, second []string) []string {
	if len(first) == 0 && len(second) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(first)+len(second))
	union := make([]string, 0, len(first)+len(second))

	for _, lists := range [][]string{first, second} {
		for _, item := range lists {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			union = append(union, item)
		}
	}

	return union
}

// laterOf возвращает более поздний из двух моментов
func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
