package web

const baseStyles = `    <style>
      body { font-family: system-ui, sans-serif; background: #1d1530; color: #f4efff; margin: 0; }
      .shell { max-width: 40rem; margin: 0 auto; padding: 2rem 1rem; }
      .tag { text-transform: uppercase; letter-spacing: .1em; color: #b89cff; font-size: .8rem; }
      .panel { background: #2a2045; border-radius: .75rem; padding: 1rem 1.25rem; margin-top: 1rem; }
      .hidden { display: none; }
      .result { margin-top: .5rem; min-height: 1.2em; color: #d8ccff; }
      .qr { background: #fff; padding: .5rem; border-radius: .5rem; }
      input, textarea, button { font: inherit; padding: .5rem .75rem; margin: .25rem 0; border-radius: .4rem; border: 0; }
      .primary { background: #8a5cff; color: #fff; }
      .secondary { background: #4b3a7a; color: #fff; }
    </style>`
