package lyrics

// Template is one entry of the fixed default-lyrics library, used whenever a
// request arrives without creative input. Bodies follow the structural tag
// convention ([Intro]/[Verse]/[Hook]/[Outro]) the providers sing best.
type Template struct {
	Name  string
	Genre string
	Mood  string
	Tags  []string
	Body  string
}

// BonusTrigger marks a prompt as asking for the station anthem pack. The
// anthem is limited to one use per user per day.
const BonusTrigger = "444"

// BonusTemplate is the special once-a-day anthem.
var BonusTemplate = Template{
	Name:  "station anthem",
	Genre: "hiphop",
	Mood:  "empowering",
	Tags:  []string{"anthem", "radio", "signature"},
	Body: `[Intro]
Signal's live, turn it loud
Every frequency, every crowd

[Verse]
Four four four on the dial tonight
Every speaker glowing light
We broadcast from the underground
Carrying that homemade sound

[Hook]
This is our station, our sound, our sign
Every wave we ride is yours and mine

[Outro]
Stay locked in, don't touch that dial`,
}

// FallbackTemplate is substituted whenever resolution produces degenerate
// content; it is guaranteed to satisfy provider minimums on its own.
var FallbackTemplate = Template{
	Name:  "uplifting pop",
	Genre: "pop",
	Mood:  "empowering",
	Tags:  []string{"upbeat", "dance", "feelgood"},
	Body: `[Intro]
Oh yeah, here we go
Feel the energy flow

[Verse]
Walking through the city lights tonight
Everything's alive and feeling right
No worries on my mind, I'm flying free
This is where I'm meant to be

[Hook]
We're dancing till the morning light
Everything just feels so right
Living in this moment now
Never gonna slow down

[Outro]
This is our time, our sound`,
}

// Library is the default template set. Order matters: ties in the matcher
// resolve to the earliest entry so resolution stays deterministic.
var Library = []Template{
	FallbackTemplate,
	{
		Name:  "melancholic indie",
		Genre: "indie",
		Mood:  "melancholic",
		Tags:  []string{"sad", "rain", "memory"},
		Body: `[Intro]
Silence fills the empty room
Memories fade too soon

[Verse]
Late night thoughts keep me awake
Wondering about the choices that I make
Photographs of better days
Echo through this empty space

[Hook]
I'm lost in yesterday
Can't find my way
These feelings won't fade away

[Outro]
Maybe someday I'll be okay`,
	},
	{
		Name:  "energetic hip-hop",
		Genre: "hiphop",
		Mood:  "intense",
		Tags:  []string{"grind", "hustle", "street"},
		Body: `[Intro]
Yeah, uh, check it
Turn it up, let's get it

[Verse]
Started from the bottom now I'm rising up
Never gave up, kept filling up my cup
Grinding every day, putting in that work
All the haters talk but my actions speak first

[Hook]
We on top now, can't stop now
Living loud, making moves, show me how
Breaking through, breaking rules, breaking ground

[Outro]
Yeah, this our time, watch us shine`,
	},
	{
		Name:  "chill lofi",
		Genre: "lofi",
		Mood:  "peaceful",
		Tags:  []string{"study", "coffee", "tape"},
		Body: `[Intro]
Mmm, yeah
Just breathe

[Verse]
Sunset painting skies in gold
Stories waiting to unfold
Coffee cooling in my hand
Life is simple, life is grand

[Hook]
Slow down, take it easy now
Feel the rhythm, don't know how
Time just fades away somehow

[Outro]
Living in this peaceful sound`,
	},
	{
		Name:  "smooth jazz",
		Genre: "jazz",
		Mood:  "smooth",
		Tags:  []string{"saxophone", "night", "club"},
		Body: `[Intro]
Candlelight and velvet skies
Music in your eyes

[Verse]
Saxophone is calling low
Through the smoke the rhythms flow
Midnight in a downtown bar
Wishing on a fading star

[Hook]
Play it soft and play it slow
Let the melody just flow
Every note a place to go

[Outro]
Till the morning takes the night`,
	},
	{
		Name:  "late night rnb",
		Genre: "rnb",
		Mood:  "romantic",
		Tags:  []string{"love", "heart", "groove"},
		Body: `[Intro]
Baby, it's just us tonight
Under this electric light

[Verse]
Your heartbeat syncing up with mine
Slow dancing, losing track of time
Whispers soft against my skin
This is where the night begins

[Hook]
Hold me closer, don't let go
Love me fast and love me slow
Every rhythm that you know

[Outro]
Just us and the afterglow`,
	},
	{
		Name:  "ocean chill",
		Genre: "chill",
		Mood:  "serene",
		Tags:  []string{"waves", "breeze", "floating"},
		Body: `[Intro]
Waves are rolling in
Let the calm begin

[Verse]
Ocean breathing on the shore
Nothing less and nothing more
Salt and sunlight in the air
Not a worry anywhere

[Hook]
Drift away, drift away
Let the water take the day
Floating where the seagulls play

[Outro]
Carried gently out to sea`,
	},
	{
		Name:  "electronic dawn",
		Genre: "electronic",
		Mood:  "dreamy",
		Tags:  []string{"synth", "neon", "night drive"},
		Body: `[Intro]
Neon rivers overhead
Chasing where the night has led

[Verse]
Synths are blooming in the dark
Every pulse a flying spark
Headlights cutting through the rain
City humming in my veins

[Hook]
We glow, we glow, until the dawn
The night is short, the signal's strong
Keep the frequency turned on

[Outro]
Fading into morning light`,
	},
	{
		Name:  "gritty blues",
		Genre: "blues",
		Mood:  "gritty",
		Tags:  []string{"road", "dust", "raw"},
		Body: `[Intro]
Dust on my boots again
Same old road, same old rain

[Verse]
Six strings and a broken amp
Playing through the midnight damp
Every mile another song
Carrying my load along

[Hook]
Roll on, roll on, weary soul
The highway's got me in its hold
Singing stories plain and old

[Outro]
One more town before the light`,
	},
	{
		Name:  "folk sunrise",
		Genre: "folk",
		Mood:  "nostalgic",
		Tags:  []string{"home", "fields", "vintage"},
		Body: `[Intro]
Morning on the meadow grass
Watching all the seasons pass

[Verse]
Grandma's porch and rusted swing
Summers when we used to sing
Fireflies in mason jars
Counting all the fading stars

[Hook]
Take me back to simple days
Golden light and country haze
Love that never knew the maze

[Outro]
Home is just a song away`,
	},
	{
		Name:  "meditative ambient",
		Genre: "ambient",
		Mood:  "meditative",
		Tags:  []string{"zen", "breath", "stillness"},
		Body: `[Intro]
Breathe in slow
Let it go

[Verse]
Stillness settles like the snow
Quiet places only breath can know
Candle flickers, shadows bend
Every moment starts again

[Hook]
Be here now, be here now
Let the silence show you how
Peace is always here somehow

[Outro]
Rest inside the quiet sound`,
	},
}
