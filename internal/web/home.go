package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Home() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Purple Sphinx</title>
`+baseStyles+`
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Purple Sphinx</span>
        <h1>Live quizzes, answered together.</h1>
        <p>Host a room in seconds or join one with the code on the big screen.</p>
      </header>

      <section class="panel">
        <h2>Host a room</h2>
        <button id="createRoom" class="primary">Create room</button>
        <div id="createResult" class="result"></div>
      </section>

      <section class="panel">
        <h2>Join a room</h2>
        <form id="joinForm">
          <input name="code" placeholder="Room code" maxlength="6" autocomplete="off" required/>
          <button type="submit" class="secondary">Join</button>
        </form>
      </section>
    </main>

    <script>
      const createBtn = document.getElementById("createRoom");
      const createResult = document.getElementById("createResult");
      createBtn.addEventListener("click", async () => {
        createResult.textContent = "Creating room...";
        const res = await fetch("/api/rooms", { method: "POST" });
        const data = await res.json();
        if (!res.ok) {
          createResult.textContent = data.error || "Failed to create room.";
          return;
        }
        createResult.textContent = "Room code: " + data.code;
      });
      document.getElementById("joinForm").addEventListener("submit", (event) => {
        event.preventDefault();
        const code = event.target.elements.code.value.trim().toUpperCase();
        if (code) {
          window.location.href = "/join/" + encodeURIComponent(code);
        }
      });
    </script>
  </body>
</html>`)
		return err
	})
}
