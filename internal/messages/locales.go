package messages

var locales = map[string]map[string]string{
	"en": en,
	"ru": ru,
}

var en = map[string]string{
	"command.start": "Hi, {name}! I keep your mood calendar. Send /mood to open the current month, /notify to set up a daily reminder, /tz <city> to set your timezone.",

	"month.1": "January", "month.2": "February", "month.3": "March",
	"month.4": "April", "month.5": "May", "month.6": "June",
	"month.7": "July", "month.8": "August", "month.9": "September",
	"month.10": "October", "month.11": "November", "month.12": "December",

	"weekday.1": "Monday", "weekday.2": "Tuesday", "weekday.3": "Wednesday",
	"weekday.4": "Thursday", "weekday.5": "Friday", "weekday.6": "Saturday",
	"weekday.7": "Sunday",

	"mood.awesome": "awesome", "mood.great": "great", "mood.good": "good",
	"mood.okay": "okay", "mood.bad": "bad", "mood.terrible": "terrible",
	"mood.unset": "unset",

	"mood_month.title":           "Mood — {month} {year}",
	"mood_month.marker_selected": "Marker: {marker}",

	"mood_day.title":          "{weekday}, {date}\nMood: {mood}\nNote: {note}",
	"mood_day.no_note":        "—",
	"mood_day.add_note":       "Add note",
	"mood_day.edit_note":      "Edit note",
	"mood_day.extend_note":    "Extend note",
	"mood_day.delete_note":    "Delete note",
	"mood_day.edit_prompt":    "{weekday}, {date}\nSend the new note text.",
	"mood_day.extend_prompt":  "{weekday}, {date}\nSend text to append to the note.",
	"mood_day.delete_warning": "{weekday}, {date}\nDelete the note for this day?",
	"mood_day.note_saved":     "Note saved",
	"mood_day.note_deleted":   "Note deleted",
	"mood_day.note_too_long":  "The note is {length} characters, the limit is {limit}. It was not saved.",

	"notify.enabled":   "Daily reminder is on.\nChat: {chat}\nTime: {time}\nAsks about: {day}",
	"notify.disabled":  "Daily reminder is off.",
	"notify.turn_on":   "Turn on",
	"notify.turn_off":  "Turn off",
	"notify.send_here": "Send here",
	"notify.send_pm":   "Send to private chat",
	"notify.pm":        "private chat",
	"notify.pick_time": "Pick the reminder time (your local time):",
	"notify.today":     "today",
	"notify.yesterday": "yesterday",
	"notify.reminder":  "{name}, how was {day} ({weekday}, {date})?",

	"tz.usage":     "Send /tz with a city or zone, e.g. /tz Berlin or /tz Europe/Kyiv.",
	"tz.updated":   "Timezone set to {zone}.",
	"tz.not_found": "Could not find a timezone for that, try a bigger city nearby.",

	"common.back":   "Back",
	"common.cancel": "Cancel",
	"common.close":  "Close",
	"common.change": "change",

	"error.not_yours": "This button is not yours",
	"error.expired":   "This button has expired",
}

var ru = map[string]string{
	"command.start": "Привет, {name}! Я веду твой календарь настроения. /mood — открыть текущий месяц, /notify — настроить ежедневное напоминание, /tz <город> — указать часовой пояс.",

	"month.1": "Январь", "month.2": "Февраль", "month.3": "Март",
	"month.4": "Апрель", "month.5": "Май", "month.6": "Июнь",
	"month.7": "Июль", "month.8": "Август", "month.9": "Сентябрь",
	"month.10": "Октябрь", "month.11": "Ноябрь", "month.12": "Декабрь",

	"weekday.1": "Понедельник", "weekday.2": "Вторник", "weekday.3": "Среда",
	"weekday.4": "Четверг", "weekday.5": "Пятница", "weekday.6": "Суббота",
	"weekday.7": "Воскресенье",

	"mood.awesome": "прекрасно", "mood.great": "отлично", "mood.good": "хорошо",
	"mood.okay": "нормально", "mood.bad": "плохо", "mood.terrible": "ужасно",
	"mood.unset": "не отмечено",

	"mood_month.title":           "Настроение — {month} {year}",
	"mood_month.marker_selected": "Маркер: {marker}",

	"mood_day.title":          "{weekday}, {date}\nНастроение: {mood}\nЗаметка: {note}",
	"mood_day.no_note":        "—",
	"mood_day.add_note":       "Добавить заметку",
	"mood_day.edit_note":      "Изменить заметку",
	"mood_day.extend_note":    "Дополнить заметку",
	"mood_day.delete_note":    "Удалить заметку",
	"mood_day.edit_prompt":    "{weekday}, {date}\nОтправь новый текст заметки.",
	"mood_day.extend_prompt":  "{weekday}, {date}\nОтправь текст, который допишем к заметке.",
	"mood_day.delete_warning": "{weekday}, {date}\nУдалить заметку за этот день?",
	"mood_day.note_saved":     "Заметка сохранена",
	"mood_day.note_deleted":   "Заметка удалена",
	"mood_day.note_too_long":  "В заметке {length} символов, лимит {limit}. Она не сохранена.",

	"notify.enabled":   "Ежедневное напоминание включено.\nЧат: {chat}\nВремя: {time}\nСпрашиваю про: {day}",
	"notify.disabled":  "Ежедневное напоминание выключено.",
	"notify.turn_on":   "Включить",
	"notify.turn_off":  "Выключить",
	"notify.send_here": "Присылать сюда",
	"notify.send_pm":   "Присылать в личку",
	"notify.pm":        "личные сообщения",
	"notify.pick_time": "Выбери время напоминания (твоё локальное):",
	"notify.today":     "сегодня",
	"notify.yesterday": "вчера",
	"notify.reminder":  "{name}, как прошло {day} ({weekday}, {date})?",

	"tz.usage":     "Отправь /tz с городом или зоной, например /tz Берлин или /tz Europe/Kyiv.",
	"tz.updated":   "Часовой пояс: {zone}.",
	"tz.not_found": "Не нашёл такой часовой пояс, попробуй крупный город рядом.",

	"common.back":   "Назад",
	"common.cancel": "Отмена",
	"common.close":  "Закрыть",
	"common.change": "изменить",

	"error.not_yours": "Это не твоя кнопка",
	"error.expired":   "Кнопка устарела",
}
